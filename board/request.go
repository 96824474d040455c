package board

import "context"

// request carries data to the monitor goroutine and its answer back.
// The channels are buffered so the monitor never blocks on a caller that
// already gave up.
type request[T any, U any] struct {
	data     T
	response chan U
	err      chan error
}

func newRequest[T any, U any](data T) *request[T, U] {
	return &request[T, U]{data, make(chan U, 1), make(chan error, 1)}
}

func (r *request[T, U]) respond(u U) {
	r.response <- u
	close(r.response)
	close(r.err)
}

func (r *request[T, U]) error(err error) {
	r.err <- err
	close(r.response)
	close(r.err)
}

func (r *request[T, U]) wait(ctx context.Context) (U, error) {
	var zero U
	select {
	case u, ok := <-r.response:
		if ok {
			return u, nil
		}
		return zero, <-r.err
	case err, ok := <-r.err:
		if ok {
			return zero, err
		}
		return <-r.response, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
