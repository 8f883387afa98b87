package models

// Kind classifies money movement. Amounts are stored non-negative; the
// kind carries the sign.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// ParseKind normalizes a user-supplied kind string. Anything that is not
// income is treated as expense, matching the permissive original intake.
func ParseKind(s string) Kind {
	if s == string(KindIncome) || s == "Income" || s == "INCOME" {
		return KindIncome
	}
	return KindExpense
}

// Valid reports whether k is one of the two known kinds.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

func (k Kind) String() string { return string(k) }
