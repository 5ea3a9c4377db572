package fixed

var (
	NegOne   = New(-1, 0)
	Zero     = New(0, 0)
	One      = New(1, 0)
	Ten      = New(10, 0)
	Hundred  = New(100, 0)
	PointOne = New(1, 1)
)
