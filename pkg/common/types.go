package common

type AccountID = int64
type InstrumentID = int64
type AssetID = int64
type PositionID = int64

type AccountRole string

const (
	RoleSource      AccountRole = "source"
	RoleDestination AccountRole = "destination"
)

type Side int

const (
	SideUnspecified Side = iota
	SideBuy
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unspecified"
	}
}
