package chord

import "fmt"

// Variant indexes into the unused buttons of a base chord
const (
	DeriveControl     = 0
	DeriveUppercase   = 1
	DerivePunctuation = 2
)

// FindUnusedKey scans buttons in ascending order, skipping those used in
// base, and returns the sequence character of the n-th unused one.
func FindUnusedKey(base string, n int) (byte, error) {
	var used [NumButtons]bool
	for i := 0; i < len(base); i++ {
		idx, err := ButtonIndex(base[i])
		if err != nil {
			return 0, err
		}
		used[idx] = true
	}

	for i := 0; i < NumButtons; i++ {
		if used[i] {
			continue
		}
		if n == 0 {
			return byte('1' + i), nil
		}
		n--
	}
	return 0, fmt.Errorf("%w: %q has too few unused buttons", ErrNoUnusedKey, base)
}

// DerivedChord inserts the n-th unused button, pressed and released, right
// after the first two transitions of base. Distinct n never collide with
// each other or with base.
func DerivedChord(base string, n int) (string, error) {
	if len(base) < 2 {
		return "", fmt.Errorf("%w: %q is shorter than two transitions", ErrInvalidSequence, base)
	}
	key, err := FindUnusedKey(base, n)
	if err != nil {
		return "", err
	}
	return base[:2] + string([]byte{key, key}) + base[2:], nil
}
