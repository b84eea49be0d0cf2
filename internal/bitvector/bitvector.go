// Package bitvector implements a fixed-universe set of small non-negative integers
// backed by a packed array of 32-bit words.
//
// The word layout (bit i lives in words[i/32], at bit i%32) is the one used to move
// the board state to and from the worker: see ToWords, FromWords, Transfer and Adopt.
package bitvector

import (
	"fmt"
	"iter"
	"math/bits"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// WordBits is the number of bits stored in each word.
const WordBits = 32

// BitVector is a set over the universe [0, Size()). The zero value is not usable, create
// it with New, FromWords or Adopt.
//
// Count is maintained on every mutation, so reading it is O(1).
type BitVector struct {
	words []uint32
	size  int
	count int

	// transferred is set once the words have been handed away with Transfer.
	transferred bool
}

// NumWords returns the number of words needed to hold a universe of the given size.
func NumWords(size int) int {
	return (size + WordBits - 1) / WordBits
}

// New creates an empty BitVector over the universe [0, size).
func New(size int) *BitVector {
	if size < 0 {
		exceptions.Panicf("bitvector.New(%d): size must be non-negative", size)
	}
	return &BitVector{
		words: make([]uint32, NumWords(size)),
		size:  size,
	}
}

// FromWords creates a BitVector over [0, size) with a copy of the given words.
//
// It returns an error if the words don't match the size: wrong number of words, or
// bits set beyond the universe.
func FromWords(size int, words []uint32) (*BitVector, error) {
	v, err := fromWords(size, words)
	if err != nil {
		return nil, err
	}
	v.words = append([]uint32(nil), words...)
	return v, nil
}

// fromWords validates words and builds a BitVector that aliases them.
func fromWords(size int, words []uint32) (*BitVector, error) {
	if size < 0 {
		return nil, errors.Errorf("invalid bitvector size %d", size)
	}
	if len(words) != NumWords(size) {
		return nil, errors.Errorf("bitvector of size %d requires %d words, got %d",
			size, NumWords(size), len(words))
	}
	if rem := size % WordBits; rem != 0 {
		if last := words[len(words)-1]; last>>rem != 0 {
			return nil, errors.Errorf("bitvector of size %d has bits set beyond its universe (last word %#x)",
				size, last)
		}
	}
	v := &BitVector{words: words, size: size}
	for _, w := range words {
		v.count += bits.OnesCount32(w)
	}
	return v, nil
}

// ToWords returns a copy of the underlying words.
func (v *BitVector) ToWords() []uint32 {
	v.checkValid()
	return append([]uint32(nil), v.words...)
}

// Size of the universe.
func (v *BitVector) Size() int {
	v.checkValid()
	return v.size
}

// Count returns the number of elements in the set.
func (v *BitVector) Count() int {
	v.checkValid()
	return v.count
}

// Valid returns false after the contents were moved out with Transfer.
func (v *BitVector) Valid() bool {
	return v != nil && !v.transferred
}

func (v *BitVector) checkValid() {
	if v == nil {
		exceptions.Panicf("nil BitVector used")
	}
	if v.transferred {
		exceptions.Panicf("BitVector used after its contents were transferred")
	}
}

func (v *BitVector) locate(i int) (word int, mask uint32) {
	v.checkValid()
	if i < 0 || i >= v.size {
		exceptions.Panicf("index %d out of the bitvector universe [0, %d)", i, v.size)
	}
	return i / WordBits, 1 << uint(i%WordBits)
}

// Has returns whether i is in the set.
func (v *BitVector) Has(i int) bool {
	word, mask := v.locate(i)
	return v.words[word]&mask != 0
}

// Add i to the set. Adding an element already present is a no-op.
func (v *BitVector) Add(i int) {
	word, mask := v.locate(i)
	if v.words[word]&mask == 0 {
		v.words[word] |= mask
		v.count++
	}
}

// Remove i from the set. Removing an absent element is a no-op.
func (v *BitVector) Remove(i int) {
	word, mask := v.locate(i)
	if v.words[word]&mask != 0 {
		v.words[word] &^= mask
		v.count--
	}
}

// Flip toggles the membership of i, and returns whether it is now in the set.
func (v *BitVector) Flip(i int) bool {
	word, mask := v.locate(i)
	v.words[word] ^= mask
	if v.words[word]&mask != 0 {
		v.count++
		return true
	}
	v.count--
	return false
}

// Clone returns an independent copy.
func (v *BitVector) Clone() *BitVector {
	v.checkValid()
	return &BitVector{
		words: append([]uint32(nil), v.words...),
		size:  v.size,
		count: v.count,
	}
}

// Equal returns whether both vectors have the same universe and the same elements.
func (v *BitVector) Equal(other *BitVector) bool {
	v.checkValid()
	other.checkValid()
	if v.size != other.size || v.count != other.count {
		return false
	}
	for ii, w := range v.words {
		if other.words[ii] != w {
			return false
		}
	}
	return true
}

// Intersects returns whether v and other have an element in common. Both must have the
// same universe.
func (v *BitVector) Intersects(other *BitVector) bool {
	v.checkSameUniverse(other)
	for ii, w := range v.words {
		if w&other.words[ii] != 0 {
			return true
		}
	}
	return false
}

// IsSubsetOf returns whether every element of v is also in other. Both must have the same
// universe.
func (v *BitVector) IsSubsetOf(other *BitVector) bool {
	v.checkSameUniverse(other)
	for ii, w := range v.words {
		if w&^other.words[ii] != 0 {
			return false
		}
	}
	return true
}

func (v *BitVector) checkSameUniverse(other *BitVector) {
	v.checkValid()
	other.checkValid()
	if v.size != other.size {
		exceptions.Panicf("bitvectors over different universes: sizes %d and %d", v.size, other.size)
	}
}

// All iterates over the elements of the set in increasing order.
func (v *BitVector) All() iter.Seq[int] {
	v.checkValid()
	return func(yield func(int) bool) {
		for wordIdx, w := range v.words {
			for w != 0 {
				bit := bits.TrailingZeros32(w)
				if !yield(wordIdx*WordBits + bit) {
					return
				}
				w &= w - 1
			}
		}
	}
}

// String lists the elements, for debugging.
func (v *BitVector) String() string {
	if !v.Valid() {
		return "BitVector(transferred)"
	}
	elements := make([]int, 0, min(v.count, 64))
	for i := range v.All() {
		if len(elements) == 64 {
			break
		}
		elements = append(elements, i)
	}
	suffix := ""
	if v.count > len(elements) {
		suffix = " ..."
	}
	return fmt.Sprintf("BitVector(size=%d, count=%d)%v%s", v.size, v.count, elements, suffix)
}
