package namelist

// ValidName reports whether name has the form "<letter>.<letters>", ASCII only.
func ValidName(name string) bool {
	if len(name) < 3 || name[1] != '.' {
		return false
	}
	if !isASCIILetter(name[0]) {
		return false
	}
	for i := 2; i < len(name); i++ {
		if !isASCIILetter(name[i]) {
			return false
		}
	}
	return true
}

// Invalid returns the names that fail ValidName, in input order.
func Invalid(names []string) []string {
	var bad []string
	for _, n := range names {
		if !ValidName(n) {
			bad = append(bad, n)
		}
	}
	return bad
}

func isASCIILetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
