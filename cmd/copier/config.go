package main

import (
	"github.com/peter-kozarec/parity/pkg/middleware"
)

const Version = "0.1.0"

const (
	RouterEventCapacity = 1000
	MonitorFlags        = middleware.MonitorSignals | middleware.MonitorOrderAdvice | middleware.MonitorCloseAdvice | middleware.MonitorRejections
)
