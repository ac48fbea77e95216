package errutils

import "emperror.dev/errors"

// As returns the first error in err's chain that has type T.
func As[T error](err error) (T, bool) {
	var target T
	if err == nil || !errors.As(err, &target) {
		return target, false
	}
	return target, true
}

// Has reports whether err's chain contains an error of type T.
func Has[T error](err error) bool {
	_, ok := As[T](err)
	return ok
}
