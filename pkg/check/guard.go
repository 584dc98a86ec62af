package check

import (
	"context"
	"fmt"
)

// Fault describes a check that broke instead of producing an Outcome,
// either by returning an error or by panicking.
type Fault struct {
	Check    string
	Err      error
	Panicked bool
}

func (f *Fault) Error() string {
	if f.Panicked {
		return fmt.Sprintf("check %q panicked: %v", f.Check, f.Err)
	}
	return fmt.Sprintf("check %q failed: %v", f.Check, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Guard runs c inside a failure boundary. Exactly one of the return
// values is meaningful: a nil *Fault means the Outcome is what the check
// reported, a non-nil *Fault means the check broke and the Outcome is zero.
func Guard(ctx context.Context, c Check) (out Outcome, fault *Fault) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			out = Outcome{}
			fault = &Fault{Check: c.Name(), Err: err, Panicked: true}
		}
	}()

	out, err := c.Run(ctx)
	if err != nil {
		return Outcome{}, &Fault{Check: c.Name(), Err: err}
	}
	return out, nil
}
