/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package atomic provides a generic, mutex-backed atomic box for a single
// field read/written from more than one worker. Cluster members, buckets
// and the runner guard their own state and do not use it.
package atomic

import "sync"

type Value[T any] struct {
	mu  sync.RWMutex
	val T
}

func NewValue[T any]() *Value[T] {
	return &Value[T]{}
}

func NewValueDefault[T any](v T) *Value[T] {
	return &Value[T]{val: v}
}

func (v *Value[T]) Load() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.val
}

func (v *Value[T]) Store(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.val = val
}

// Swap stores val and returns the previous value.
func (v *Value[T]) Swap(val T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	old := v.val
	v.val = val
	return old
}

// Update applies f to the current value under the write lock and stores
// the result; useful for read-modify-write sequences like incrementing an
// in-flight counter without a separate atomic.Int64.
func (v *Value[T]) Update(f func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.val = f(v.val)
	return v.val
}
