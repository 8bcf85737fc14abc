package reconcile

import "fmt"

// KeyFormat checks a primary business key after AlphaNumKey normalization:
// exactly Letters letters followed by exactly Digits digits.
type KeyFormat struct {
	Name    string
	Letters int
	Digits  int
}

// Check validates an already-normalized key against the format.
func (f KeyFormat) Check(key string) error {
	letters := 0
	for letters < len(key) && key[letters] >= 'A' && key[letters] <= 'Z' {
		letters++
	}
	digits := 0
	for i := letters; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			digits = -1
			break
		}
		digits++
	}

	if letters != f.Letters || digits != f.Digits {
		return fmt.Errorf("%s must be exactly %d letters followed by %d digits, got %q",
			f.Name, f.Letters, f.Digits, key)
	}
	return nil
}

// DigitFormat checks a secondary numeric key after DigitKey normalization:
// exactly Digits digits.
type DigitFormat struct {
	Name   string
	Digits int
}

// Check validates an already-normalized key against the format.
func (f DigitFormat) Check(key string) error {
	if len(key) != f.Digits {
		return fmt.Errorf("%s must resolve to exactly %d digits, got %d", f.Name, f.Digits, len(key))
	}
	for i := 0; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return fmt.Errorf("%s must contain only digits, got %q", f.Name, key)
		}
	}
	return nil
}
