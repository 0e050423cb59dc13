package contract

type contractParams struct {
	amount uint64
}

var params = &contractParams{}

const amountFlag = "amount"
