package data

import "strings"

// Scheme prefixes every canonical virtual location.
const Scheme = "server://"

// HomeLocation is the location every new tab starts on.
const HomeLocation VirtualLocation = Scheme + "home"

// VirtualLocation identifies a virtual server, e.g. "server://home".
// Two locations are equal iff their strings are equal.
type VirtualLocation string

// Resolve turns arbitrary user input into a canonical location.
// Input that already carries the scheme is returned unchanged, anything else
// gets the scheme prepended. No trimming, case folding or validation happens,
// so Resolve never fails and Resolve(Resolve(x)) == Resolve(x).
func Resolve(input string) VirtualLocation {
	if strings.HasPrefix(input, Scheme) {
		return VirtualLocation(input)
	}

	return VirtualLocation(Scheme + input)
}

// Name returns the location without its scheme prefix.
func (l VirtualLocation) Name() string {
	return strings.TrimPrefix(string(l), Scheme)
}

func (l VirtualLocation) String() string {
	return string(l)
}
