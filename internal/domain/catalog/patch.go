package catalog

import "github.com/shopspring/decimal"

// Opt is an optional field in a patch: Set distinguishes "present" from
// "absent entirely", so a zero value supplied by the caller is never confused
// with a field that was omitted.
type Opt[T any] struct {
	Value T
	Set   bool
}

// NewOpt returns a present Opt carrying v.
func NewOpt[T any](v T) Opt[T] {
	return Opt[T]{Value: v, Set: true}
}

// Get returns the value and whether it was set.
func (o Opt[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// OptNull is an optional nullable field: Set means the field was present,
// Null means it was present with an explicit null (clearing the column).
type OptNull[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// NewOptNull returns a present, non-null OptNull carrying v.
func NewOptNull[T any](v T) OptNull[T] {
	return OptNull[T]{Value: v, Set: true}
}

// Null returns a present, explicitly-null OptNull.
func Null[T any]() OptNull[T] {
	return OptNull[T]{Set: true, Null: true}
}

// Patch is a partial product update. Absent fields leave the stored value
// untouched; ImageURL distinguishes clearing the image (present null) from
// not mentioning it.
type Patch struct {
	Name        Opt[string]
	Description Opt[string]
	Price       Opt[decimal.Decimal]
	Category    Opt[string]
	ImageURL    OptNull[string]
	Active      Opt[bool]
}

// Empty reports whether the patch carries no field at all.
func (p Patch) Empty() bool {
	return !p.Name.Set && !p.Description.Set && !p.Price.Set &&
		!p.Category.Set && !p.ImageURL.Set && !p.Active.Set
}
