package copier

import (
	"fmt"

	"github.com/peter-kozarec/parity/pkg/common"
)

// Static id table for brokers following the conventional cTrader numbering.
// The reference store loaded from the session is always consulted first; this
// is a degraded fallback for ids outside the loaded universe and may be wrong
// for brokers with custom numbering.
var fallbackSymbolNames = map[common.InstrumentID]string{
	1: "EURUSD", 2: "GBPUSD", 3: "USDJPY", 4: "USDCHF",
	5: "AUDUSD", 6: "USDCAD", 7: "NZDUSD",
	41: "XAUUSD", 42: "XAGUSD",
	43: "BTCUSD", 44: "ETHUSD",
	45: "US30", 46: "SPX500", 47: "NAS100",
	48: "CRUDE", 49: "BRENT",
}

var fallbackSymbolIDs = func() map[string]common.InstrumentID {
	m := make(map[string]common.InstrumentID, len(fallbackSymbolNames))
	for id, name := range fallbackSymbolNames {
		m[name] = id
	}
	return m
}()

func FallbackSymbolName(id common.InstrumentID) string {
	if name, ok := fallbackSymbolNames[id]; ok {
		return name
	}
	return fmt.Sprintf("SYMBOL_%d", id)
}

func FallbackSymbolID(name string) (common.InstrumentID, bool) {
	id, ok := fallbackSymbolIDs[name]
	return id, ok
}
