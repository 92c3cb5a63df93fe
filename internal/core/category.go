package core

// Category is a closed enumeration partitioned into expense and income sets.
// The partition determines which transaction types may use a category.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryHousing       Category = "housing"
	CategoryUtilities     Category = "utilities"
	CategoryHealth        Category = "health"
	CategoryEntertainment Category = "entertainment"
	CategoryShopping      Category = "shopping"
	CategoryEducation     Category = "education"
	CategoryOther         Category = "other"

	CategorySalary      Category = "salary"
	CategoryFreelance   Category = "freelance"
	CategoryInvestment  Category = "investment"
	CategoryGift        Category = "gift"
	CategoryOtherIncome Category = "other-income"
)

// ExpenseCategories lists the expense partition. CategoryOther doubles as the
// fallback used when imports carry an unknown expense category.
var ExpenseCategories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryHousing,
	CategoryUtilities,
	CategoryHealth,
	CategoryEntertainment,
	CategoryShopping,
	CategoryEducation,
	CategoryOther,
}

// IncomeCategories lists the income partition.
var IncomeCategories = []Category{
	CategorySalary,
	CategoryFreelance,
	CategoryInvestment,
	CategoryGift,
	CategoryOtherIncome,
}

// AllCategories returns both partitions, expense first.
func AllCategories() []Category {
	out := make([]Category, 0, len(ExpenseCategories)+len(IncomeCategories))
	out = append(out, ExpenseCategories...)
	out = append(out, IncomeCategories...)
	return out
}

// IsExpense reports membership in the expense partition.
func (c Category) IsExpense() bool {
	for _, e := range ExpenseCategories {
		if c == e {
			return true
		}
	}
	return false
}

// IsIncome reports membership in the income partition.
func (c Category) IsIncome() bool {
	for _, i := range IncomeCategories {
		if c == i {
			return true
		}
	}
	return false
}

// Valid reports membership in either partition.
func (c Category) Valid() bool {
	return c.IsExpense() || c.IsIncome()
}

// AllowedFor reports whether the category's partition matches the
// transaction type.
func (c Category) AllowedFor(t TransactionType) bool {
	switch t {
	case Income:
		return c.IsIncome()
	case Expense:
		return c.IsExpense()
	default:
		return false
	}
}
