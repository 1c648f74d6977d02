package core

import "math"

// Container is a mergeable statistical aggregator. Containers nest: binned,
// threshold and composition containers own sub-containers created from a
// template with Zero.
//
// Fill mutates the receiver. A rejected fill leaves the whole tree as it was.
// Combine returns a new container and never mutates either argument; it
// fails with ErrConfigMismatch when the configurations differ.
type Container interface {
	Name() string
	Entries() float64
	Zero() Container
	Copy() Container
	Fill(datum interface{}, weight float64) error
	Combine(other Container) (Container, error)
	Fragment() interface{}

	// check validates the route datum would take without touching any state.
	check(datum interface{}, weight float64) error
	// fill applies an already checked datum.
	fill(datum interface{}, weight float64)
}

type (
	QuantityFunc       func(datum interface{}) float64
	StringQuantityFunc func(datum interface{}) string
	ValueQuantityFunc  func(datum interface{}) interface{}
	SelectionFunc      func(datum interface{}) float64
)

// Unweighted selects every datum with weight 1.
func Unweighted(interface{}) float64 {
	return 1
}

// Cut turns a predicate into a 0/1 selection.
func Cut(predicate func(datum interface{}) bool) SelectionFunc {
	return func(datum interface{}) float64 {
		if predicate(datum) {
			return 1
		}
		return 0
	}
}

// Identity reads a numeric datum as a float64; anything else is NaN.
func Identity(datum interface{}) float64 {
	if x, ok := numberOf(datum); ok {
		return x
	}
	return math.NaN()
}

// fillChecked walks the tree twice: check finds every error first, so a
// rejected fill leaves the tree untouched. Quantities and selections are
// therefore evaluated once per pass and must be pure.
func fillChecked(c Container, datum interface{}, weight float64) error {
	if err := c.check(datum, weight); err != nil {
		return err
	}
	c.fill(datum, weight)
	return nil
}

// rule is the quantity/selection pair of a numeric container.
type rule struct {
	quantity  QuantityFunc
	selection SelectionFunc
}

func (r rule) bound() bool {
	return r.quantity != nil && r.selection != nil
}

func (r rule) weigh(datum interface{}, weight float64) float64 {
	return effectiveWeight(r.selection, datum, weight)
}

// effectiveWeight is weight scaled by the selection of datum; zero means the
// fill is a no-op.
func effectiveWeight(selection SelectionFunc, datum interface{}, weight float64) float64 {
	if !(weight > 0) {
		return 0
	}
	w := weight * selection(datum)
	if !(w > 0) {
		return 0
	}
	return w
}

func bindSelection(selection SelectionFunc) SelectionFunc {
	if selection == nil {
		return Unweighted
	}
	return selection
}

type options struct {
	selection  SelectionFunc
	underflow  Container
	overflow   Container
	nanflow    Container
	origin     float64
	tailDetail float64
}

type Option func(*options)

func WithSelection(selection SelectionFunc) Option {
	return func(opts *options) {
		opts.selection = selection
	}
}

func WithUnderflow(template Container) Option {
	return func(opts *options) {
		opts.underflow = template
	}
}

func WithOverflow(template Container) Option {
	return func(opts *options) {
		opts.overflow = template
	}
}

func WithNanflow(template Container) Option {
	return func(opts *options) {
		opts.nanflow = template
	}
}

// WithOrigin sets the SparselyBin bin origin (default 0).
func WithOrigin(origin float64) Option {
	return func(opts *options) {
		opts.origin = origin
	}
}

// WithTailDetail weights the AdaptivelyBin merge score between center
// distance (1, the default) and combined bin weight (0).
func WithTailDetail(tailDetail float64) Option {
	return func(opts *options) {
		opts.tailDetail = tailDetail
	}
}

func newOptions(opts []Option) *options {
	result := &options{
		selection:  Unweighted,
		tailDetail: 1,
	}
	for _, opt := range opts {
		opt(result)
	}
	result.selection = bindSelection(result.selection)
	return result
}

// instantiate returns a fresh sub-container from template, Count when nil.
func instantiate(template Container) Container {
	if template == nil {
		return NewCount()
	}
	return template.Zero()
}

// Reattach gives a reconstructed container the fill rules of template, an
// equally configured container built with its quantity and selection. The
// result holds the statistics of restored and fills like template.
func Reattach(template, restored Container) (Container, error) {
	return template.Zero().Combine(restored)
}

// absorb merges other into a fresh instance of template so that the result
// carries template's fill rules; without a template it copies other.
func absorb(template, other Container) (Container, error) {
	if template == nil {
		return other.Copy(), nil
	}
	return template.Zero().Combine(other)
}

// sameType reports whether c could be combined into a container holding
// contentType values.
func sameType(contentType string, c Container) bool {
	return contentType == c.Name()
}
