/*
* The MIT License (MIT)
* =====================
*
* Copyright (c) 2015, Cagatay Dogan
*
* Permission is hereby granted, free of charge, to any person obtaining a copy
* of this software and associated documentation files (the "Software"), to deal
* in the Software without restriction, including without limitation the rights
* to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
* copies of the Software, and to permit persons to whom the Software is
* furnished to do so, subject to the following conditions:
*
* The above copyright notice and this permission notice shall be included in
* all copies or substantial portions of the Software.
*
* THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
* IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
* FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
* AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
* LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
* OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
* THE SOFTWARE.
 */

package tree

import "cmp"

const (
	red   = byte(0)
	black = byte(1)
)

type rbNode[K cmp.Ordered, V any] struct {
	key    K
	value  V
	colour byte
	left   *rbNode[K, V]
	right  *rbNode[K, V]
}

// RbTree is a left-leaning red-black tree mapping ordered keys to values.
// It is not safe for concurrent mutation; every owner keeps its own tree.
type RbTree[K cmp.Ordered, V any] struct {
	root  *rbNode[K, V]
	count int
}

func NewRbTree[K cmp.Ordered, V any]() *RbTree[K, V] {
	return &RbTree[K, V]{}
}

func newRbNode[K cmp.Ordered, V any](key K, value V) *rbNode[K, V] {
	return &rbNode[K, V]{
		key:    key,
		value:  value,
		colour: red,
	}
}

func isRed[K cmp.Ordered, V any](node *rbNode[K, V]) bool {
	return node != nil && node.colour == red
}

func isBlack[K cmp.Ordered, V any](node *rbNode[K, V]) bool {
	return node != nil && node.colour == black
}

func minNode[K cmp.Ordered, V any](node *rbNode[K, V]) *rbNode[K, V] {
	if node != nil {
		for node.left != nil {
			node = node.left
		}
	}
	return node
}

func maxNode[K cmp.Ordered, V any](node *rbNode[K, V]) *rbNode[K, V] {
	if node != nil {
		for node.right != nil {
			node = node.right
		}
	}
	return node
}

func floor[K cmp.Ordered, V any](node *rbNode[K, V], key K) *rbNode[K, V] {
	if node == nil {
		return nil
	}

	switch cmp.Compare(key, node.key) {
	case 0:
		return node
	case -1:
		return floor(node.left, key)
	default:
		if fn := floor(node.right, key); fn != nil {
			return fn
		}
		return node
	}
}

func ceiling[K cmp.Ordered, V any](node *rbNode[K, V], key K) *rbNode[K, V] {
	if node == nil {
		return nil
	}

	switch cmp.Compare(key, node.key) {
	case 0:
		return node
	case 1:
		return ceiling(node.right, key)
	default:
		if cn := ceiling(node.left, key); cn != nil {
			return cn
		}
		return node
	}
}

func flipSingleNodeColour[K cmp.Ordered, V any](node *rbNode[K, V]) {
	if node.colour == black {
		node.colour = red
	} else {
		node.colour = black
	}
}

// Flips the colours of node, and its two children
func colourFlip[K cmp.Ordered, V any](node *rbNode[K, V]) {
	flipSingleNodeColour(node)
	flipSingleNodeColour(node.left)
	flipSingleNodeColour(node.right)
}

func rotateLeft[K cmp.Ordered, V any](node *rbNode[K, V]) *rbNode[K, V] {
	child := node.right
	node.right = child.left
	child.left = node
	child.colour = node.colour
	node.colour = red
	return child
}

func rotateRight[K cmp.Ordered, V any](node *rbNode[K, V]) *rbNode[K, V] {
	child := node.left
	node.left = child.right
	child.right = node
	child.colour = node.colour
	node.colour = red
	return child
}

// moveRedLeft makes node.left or one of its children red,
// assuming that node is red and both children are black.
func moveRedLeft[K cmp.Ordered, V any](node *rbNode[K, V]) *rbNode[K, V] {
	colourFlip(node)
	if isRed(node.right.left) {
		node.right = rotateRight(node.right)
		node = rotateLeft(node)
		colourFlip(node)
	}
	return node
}

// moveRedRight makes node.right or one of its children red,
// assuming that node is red and both children are black.
func moveRedRight[K cmp.Ordered, V any](node *rbNode[K, V]) *rbNode[K, V] {
	colourFlip(node)
	if isRed(node.left.left) {
		node = rotateRight(node)
		colourFlip(node)
	}
	return node
}

func balance[K cmp.Ordered, V any](node *rbNode[K, V]) *rbNode[K, V] {
	if isRed(node.right) {
		node = rotateLeft(node)
	}
	if isRed(node.left) && isRed(node.left.left) {
		node = rotateRight(node)
	}
	if isRed(node.left) && isRed(node.right) {
		colourFlip(node)
	}
	return node
}

func deleteMin[K cmp.Ordered, V any](node *rbNode[K, V]) *rbNode[K, V] {
	if node.left == nil {
		return nil
	}
	if isBlack(node.left) && !isRed(node.left.left) {
		node = moveRedLeft(node)
	}
	node.left = deleteMin(node.left)
	return balance(node)
}

func (tree *RbTree[K, V]) Count() int {
	return tree.count
}

func (tree *RbTree[K, V]) IsEmpty() bool {
	return tree.root == nil
}

// Min returns the smallest key and its value; ok is false on an empty tree.
func (tree *RbTree[K, V]) Min() (key K, value V, ok bool) {
	if node := minNode(tree.root); node != nil {
		return node.key, node.value, true
	}
	return key, value, false
}

func (tree *RbTree[K, V]) Max() (key K, value V, ok bool) {
	if node := maxNode(tree.root); node != nil {
		return node.key, node.value, true
	}
	return key, value, false
}

// Floor returns the largest key in the tree less than or equal to key
func (tree *RbTree[K, V]) Floor(key K) (K, V, bool) {
	if node := floor(tree.root, key); node != nil {
		return node.key, node.value, true
	}
	var value V
	return key, value, false
}

// Ceiling returns the smallest key in the tree greater than or equal to key
func (tree *RbTree[K, V]) Ceiling(key K) (K, V, bool) {
	if node := ceiling(tree.root, key); node != nil {
		return node.key, node.value, true
	}
	var value V
	return key, value, false
}

func (tree *RbTree[K, V]) find(key K) *rbNode[K, V] {
	for node := tree.root; node != nil; {
		switch cmp.Compare(key, node.key) {
		case -1:
			node = node.left
		case 1:
			node = node.right
		default:
			return node
		}
	}
	return nil
}

func (tree *RbTree[K, V]) Get(key K) (V, bool) {
	if node := tree.find(key); node != nil {
		return node.value, true
	}
	var value V
	return value, false
}

func (tree *RbTree[K, V]) Exists(key K) bool {
	return tree.find(key) != nil
}

// insertNode adds the given key and value into the node
func (tree *RbTree[K, V]) insertNode(node *rbNode[K, V], key K, value V) *rbNode[K, V] {
	if node == nil {
		tree.count++
		return newRbNode(key, value)
	}

	switch cmp.Compare(key, node.key) {
	case -1:
		node.left = tree.insertNode(node.left, key, value)
	case 1:
		node.right = tree.insertNode(node.right, key, value)
	default:
		node.value = value
	}
	return balance(node)
}

// Insert inserts the given key and value into the tree, replacing the value
// of an existing key.
func (tree *RbTree[K, V]) Insert(key K, value V) {
	tree.root = tree.insertNode(tree.root, key, value)
	tree.root.colour = black
}

// deleteNode deletes the given key from the node
func (tree *RbTree[K, V]) deleteNode(node *rbNode[K, V], key K) *rbNode[K, V] {
	if node == nil {
		return nil
	}

	if cmp.Compare(key, node.key) < 0 {
		if isBlack(node.left) && !isRed(node.left.left) {
			node = moveRedLeft(node)
		}
		node.left = tree.deleteNode(node.left, key)
	} else {
		if isRed(node.left) {
			node = rotateRight(node)
		}

		if isBlack(node.right) && !isRed(node.right.left) {
			node = moveRedRight(node)
		}

		if cmp.Compare(key, node.key) != 0 {
			node.right = tree.deleteNode(node.right, key)
		} else {
			if node.right == nil {
				return nil
			}

			rm := minNode(node.right)
			node.key = rm.key
			node.value = rm.value
			node.right = deleteMin(node.right)

			rm.left = nil
			rm.right = nil
		}
	}
	return balance(node)
}

// Delete deletes the given key from the tree
func (tree *RbTree[K, V]) Delete(key K) {
	if !tree.Exists(key) {
		// the look-up keeps count exact
		return
	}

	tree.count--
	tree.root = tree.deleteNode(tree.root, key)
	if tree.root != nil {
		tree.root.colour = black
	}
}

type RbTreeCallback[K cmp.Ordered, V any] func(K, V) bool

func traverseAll[K cmp.Ordered, V any](node *rbNode[K, V], callback RbTreeCallback[K, V]) bool {
	if node == nil {
		return false
	}
	if traverseAll(node.left, callback) {
		return true
	}
	if callback(node.key, node.value) {
		return true
	}
	return traverseAll(node.right, callback)
}

// Map visits the entries in ascending key order until the callback returns
// true.
func (tree *RbTree[K, V]) Map(fn RbTreeCallback[K, V]) {
	traverseAll(tree.root, fn)
}

func (tree *RbTree[K, V]) Keys() []K {
	keys := make([]K, 0, tree.count)
	tree.Map(func(key K, _ V) bool {
		keys = append(keys, key)
		return false
	})
	return keys
}
