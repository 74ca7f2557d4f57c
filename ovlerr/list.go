package ovlerr

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Errors accumulates failures of independent overload sets.
// A nil *Errors is empty.
type Errors struct {
	errs []Error
}

func (r *Errors) With(err ...Error) *Errors {
	if r == nil {
		return &Errors{errs: err}
	}
	r.errs = append(r.errs, err...)
	return r
}

func (r *Errors) Merge(err *Errors) *Errors {
	if r == nil {
		return err
	}
	if err == nil || len(err.errs) == 0 {
		return r
	}
	return r.With(err.errs...)
}

func (r *Errors) Errors() []Error {
	if r == nil {
		return nil
	}
	return r.errs
}

func (r *Errors) HasError() bool {
	if r == nil {
		return false
	}
	return len(r.errs) > 0
}

// Err returns r as an error, or nil when it is empty
func (r *Errors) Err() error {
	if !r.HasError() {
		return nil
	}
	return r
}

func (r *Errors) Error() string {
	sb := &strings.Builder{}
	for i, e := range r.Errors() {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(FormatWithCode(e))
	}
	return sb.String()
}

func (r *Errors) LogValue() slog.Value {
	var vals []slog.Attr
	for i, v := range r.Errors() {
		vals = append(vals, slog.Attr{
			Key: fmt.Sprint("e", i),
			Value: slog.GroupValue(
				slog.Attr{
					Key:   "msg",
					Value: slog.StringValue(FormatWithCode(v)),
				},
				slog.String("kind", v.Kind().String()),
			),
		})
	}
	return slog.GroupValue(vals...)
}

// As finds the first Error in err's chain
func As(err error) (Error, bool) {
	var target Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// HasCode reports whether err or any error it wraps or accumulates carries code
func HasCode(err error, code ErrCode) bool {
	var list *Errors
	if errors.As(err, &list) {
		for _, e := range list.Errors() {
			if e.Code() == code {
				return true
			}
		}
		return false
	}
	e, ok := As(err)
	return ok && e.Code() == code
}
