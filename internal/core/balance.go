package core

// CalculateBalance folds the transactions into a signed balance: income adds,
// expense subtracts. The order of the input does not matter.
func CalculateBalance(transactions []Transaction) int64 {
	var balance int64
	for _, tx := range transactions {
		switch tx.Type {
		case Income:
			balance += tx.Amount
		case Expense:
			balance -= tx.Amount
		}
	}
	return balance
}

// ChoreCount returns the number of income transactions.
func ChoreCount(transactions []Transaction) int {
	n := 0
	for _, tx := range transactions {
		if tx.IsIncome() {
			n++
		}
	}
	return n
}
