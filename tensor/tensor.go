package tensor

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"slices"
)

// MaxRank is the highest supported tensor rank.
const MaxRank = 4

// Tensor is a row-major shaped view over a pooled block. A tensor with zero
// elements holds no block.
type Tensor[T Element] struct {
	shape []uint32
	block *Block[T]
}

// New allocates a zeroed tensor of the given shape from p.
func New[T Element](p *Pool, shape ...uint32) (*Tensor[T], error) {
	n, err := elementCount(shape)
	if err != nil {
		return nil, err
	}
	t := &Tensor[T]{shape: slices.Clone(shape)}
	if n == 0 {
		return t, nil
	}
	if t.block, err = Get[T](p, n); err != nil {
		return nil, err
	}
	return t, nil
}

func elementCount(shape []uint32) (int, error) {
	if len(shape) == 0 || len(shape) > MaxRank {
		return 0, fmt.Errorf("%w: rank %d", ErrInvalidSize, len(shape))
	}
	n := uint64(1)
	for _, d := range shape {
		n *= uint64(d)
		if n > math.MaxInt32 {
			return 0, fmt.Errorf("%w: shape %v", ErrInvalidSize, shape)
		}
	}
	return int(n), nil
}

// NewVector allocates a vector holding a copy of values.
func NewVector[T Element](p *Pool, values ...T) (*Tensor[T], error) {
	t, err := New[T](p, uint32(len(values)))
	if err != nil {
		return nil, err
	}
	copy(t.Data(), values)
	return t, nil
}

// NewMatrix allocates a rows x columns matrix. init, when set, supplies every
// element.
func NewMatrix[T Element](p *Pool, rows, columns uint32, init func(r, c uint32) T) (*Tensor[T], error) {
	t, err := New[T](p, rows, columns)
	if err != nil {
		return nil, err
	}
	if init != nil {
		data := t.Data()
		for i := range data {
			data[i] = init(uint32(i)/columns, uint32(i)%columns)
		}
	}
	return t, nil
}

// NewMatrixFromRows stacks equally sized vectors as matrix rows.
func NewMatrixFromRows[T Element](p *Pool, rows ...*Tensor[T]) (*Tensor[T], error) {
	if len(rows) == 0 {
		return New[T](p, 0, 0)
	}
	cols := uint32(rows[0].Size())
	for _, r := range rows {
		if r.Rank() != 1 || uint32(r.Size()) != cols {
			return nil, fmt.Errorf("%w: rows must be vectors of length %d", ErrInvalidSize, cols)
		}
	}
	return NewMatrix(p, uint32(len(rows)), cols, func(r, c uint32) T { return rows[r].Data()[c] })
}

// New3D allocates a depth x rows x columns tensor.
func New3D[T Element](p *Pool, depth, rows, columns uint32) (*Tensor[T], error) {
	return New[T](p, depth, rows, columns)
}

// New4D allocates a count x depth x rows x columns tensor.
func New4D[T Element](p *Pool, count, depth, rows, columns uint32) (*Tensor[T], error) {
	return New[T](p, count, depth, rows, columns)
}

// Shape returns a copy of the dimensions.
func (t *Tensor[T]) Shape() []uint32 { return slices.Clone(t.shape) }

// Rank returns the number of dimensions.
func (t *Tensor[T]) Rank() int { return len(t.shape) }

// Size returns the number of elements.
func (t *Tensor[T]) Size() int {
	n := 1
	for _, d := range t.shape {
		n *= int(d)
	}
	return n
}

// ColumnCount returns the last dimension for rank >= 2, else 0.
func (t *Tensor[T]) ColumnCount() uint32 { return t.dimFromEnd(1, 2) }

// RowCount returns the second to last dimension for rank >= 2, else 0.
func (t *Tensor[T]) RowCount() uint32 { return t.dimFromEnd(2, 2) }

// Depth returns the third to last dimension for rank >= 3, else 0.
func (t *Tensor[T]) Depth() uint32 { return t.dimFromEnd(3, 3) }

// Count returns the fourth to last dimension for rank 4, else 0.
func (t *Tensor[T]) Count() uint32 { return t.dimFromEnd(4, 4) }

func (t *Tensor[T]) dimFromEnd(pos, minRank int) uint32 {
	if len(t.shape) < minRank {
		return 0
	}
	return t.shape[len(t.shape)-pos]
}

// Data returns the elements, or nil after the tensor was released.
func (t *Tensor[T]) Data() []T {
	if t.block == nil {
		return nil
	}
	return t.block.Data()
}

// Block returns the backing block, nil for empty tensors.
func (t *Tensor[T]) Block() *Block[T] { return t.block }

func (t *Tensor[T]) offset(idx []uint32) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: %d indices for rank %d", len(idx), len(t.shape)))
	}
	off := 0
	for i, x := range idx {
		if x >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range [0,%d) in dimension %d", x, t.shape[i], i))
		}
		off = off*int(t.shape[i]) + int(x)
	}
	return off
}

// At returns the element at idx, one index per dimension.
func (t *Tensor[T]) At(idx ...uint32) T { return t.Data()[t.offset(idx)] }

// Set stores v at idx.
func (t *Tensor[T]) Set(v T, idx ...uint32) { t.Data()[t.offset(idx)] = v }

// AddRef takes another reference on the backing block.
func (t *Tensor[T]) AddRef() (int32, error) {
	if t.block == nil {
		return 1, nil
	}
	return t.block.AddRef()
}

// Release drops a reference on the backing block.
func (t *Tensor[T]) Release() int32 {
	if t.block == nil {
		return 0
	}
	return t.block.Release()
}

// Equal reports whether both tensors have the same shape and elements.
func (t *Tensor[T]) Equal(o *Tensor[T]) bool {
	return slices.Equal(t.shape, o.shape) && slices.Equal(t.Data(), o.Data())
}

func (t *Tensor[T]) String() string {
	return fmt.Sprintf("Tensor[%s]%v", ElementTypeOf[T](), t.shape)
}

// AppendBinary appends [element type][rank][dims...][elements] in little
// endian to buf.
func (t *Tensor[T]) AppendBinary(buf []byte) ([]byte, error) {
	buf = append(buf, byte(ElementTypeOf[T]()), byte(len(t.shape)))
	for _, d := range t.shape {
		buf = binary.LittleEndian.AppendUint32(buf, d)
	}
	data := t.Data()
	if data == nil && t.Size() > 0 {
		return nil, ErrReleased
	}
	if len(data) == 0 {
		return buf, nil
	}
	return binary.Append(buf, binary.LittleEndian, data)
}

// WriteTo implements io.WriterTo.
func (t *Tensor[T]) WriteTo(w io.Writer) (int64, error) {
	buf, err := t.AppendBinary(nil)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}

func readShape[T Element](hdr []byte) ([]uint32, int, error) {
	if len(hdr) < 2 {
		return nil, 0, fmt.Errorf("%w: tensor header", ErrCorrupt)
	}
	if want := ElementTypeOf[T](); ElementType(hdr[0]) != want {
		return nil, 0, fmt.Errorf("%w: element type %s, want %s", ErrCorrupt, ElementType(hdr[0]), want)
	}
	rank := int(hdr[1])
	if rank == 0 || rank > MaxRank {
		return nil, 0, fmt.Errorf("%w: rank %d", ErrCorrupt, rank)
	}
	if len(hdr) < 2+4*rank {
		return nil, 0, fmt.Errorf("%w: tensor shape", ErrCorrupt)
	}
	shape := make([]uint32, rank)
	for i := range shape {
		shape[i] = binary.LittleEndian.Uint32(hdr[2+4*i:])
	}
	return shape, 2 + 4*rank, nil
}

// UnmarshalTensor decodes a tensor from the start of data into a block from
// p and returns the number of bytes consumed.
func UnmarshalTensor[T Element](p *Pool, data []byte) (*Tensor[T], int, error) {
	shape, off, err := readShape[T](data)
	if err != nil {
		return nil, 0, err
	}
	n, err := elementCount(shape)
	if err != nil {
		return nil, 0, err
	}
	need := n * ElementTypeOf[T]().Size()
	if len(data)-off < need {
		return nil, 0, fmt.Errorf("%w: tensor data", ErrCorrupt)
	}
	t, err := New[T](p, shape...)
	if err != nil {
		return nil, 0, err
	}
	if n > 0 {
		if _, err := binary.Decode(data[off:off+need], binary.LittleEndian, t.Data()); err != nil {
			t.Release()
			return nil, 0, err
		}
	}
	return t, off + need, nil
}

// ReadTensor reads a tensor written by WriteTo.
func ReadTensor[T Element](p *Pool, r io.Reader) (*Tensor[T], error) {
	hdr := make([]byte, 2, 2+4*MaxRank)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}
	rank := int(hdr[1])
	if rank == 0 || rank > MaxRank {
		return nil, fmt.Errorf("%w: rank %d", ErrCorrupt, rank)
	}
	hdr = hdr[:2+4*rank]
	if _, err := io.ReadFull(r, hdr[2:]); err != nil {
		return nil, err
	}
	shape, _, err := readShape[T](hdr)
	if err != nil {
		return nil, err
	}
	t, err := New[T](p, shape...)
	if err != nil {
		return nil, err
	}
	if t.Size() > 0 {
		if err := binary.Read(r, binary.LittleEndian, t.Data()); err != nil {
			t.Release()
			return nil, err
		}
	}
	return t, nil
}
