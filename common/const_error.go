package common

// ConstError is an error type allowing errors to be defined as immutable
// constants, suitable for sentinel errors matched with errors.Is.
type ConstError string

func (e ConstError) Error() string {
	return string(e)
}
