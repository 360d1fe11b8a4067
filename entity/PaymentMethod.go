package entity

type PaymentMethod string

const (
	MethodCard PaymentMethod = "card"
	MethodUPI  PaymentMethod = "upi"
	MethodCOD  PaymentMethod = "cod"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCard, MethodUPI, MethodCOD:
		return true
	}
	return false
}
