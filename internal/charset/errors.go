package charset

import "fmt"

// UnsupportedError reports a charset name the IANA registry cannot map
// to a usable encoding. It surfaces at the resolution boundary and is
// never recovered internally.
type UnsupportedError struct {
	Name string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported charset %q", e.Name)
}
