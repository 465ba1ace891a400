package schema

import (
	"fmt"

	"github.com/yanun0323/decimal"
)

// ExchangeID is the numeric identifier for an exchange.
type ExchangeID uint16

// Exchange describes a trading venue.
type Exchange struct {
	ID   ExchangeID
	Name string
}

// Instrument describes a tradable instrument. The book-keeping core uses
// it only as an index key and identity; tick and multiplier are carried
// for adaptor consumers.
type Instrument struct {
	ID         uint32          `json:"id"`
	Code       string          `json:"code"`
	ExchangeID ExchangeID      `json:"exchangeId"`
	PriceTick  decimal.Decimal `json:"priceTick"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// InstrumentRegistry stores exchange and instrument mappings in a compact form.
type InstrumentRegistry struct {
	exchanges        []Exchange
	instruments      []Instrument
	exchangeByName   map[string]ExchangeID
	instrumentByCode map[string]uint32
}

// NewInstrumentRegistry creates an empty registry.
func NewInstrumentRegistry() *InstrumentRegistry {
	return &InstrumentRegistry{
		exchangeByName:   make(map[string]ExchangeID),
		instrumentByCode: make(map[string]uint32),
	}
}

// AddExchange registers a new exchange and returns its ID.
func (r *InstrumentRegistry) AddExchange(name string) (ExchangeID, error) {
	if name == "" {
		return 0, fmt.Errorf("exchange name is empty")
	}
	if id, ok := r.exchangeByName[name]; ok {
		return id, fmt.Errorf("exchange already exists: %s", name)
	}
	id := ExchangeID(len(r.exchanges) + 1)
	r.exchanges = append(r.exchanges, Exchange{ID: id, Name: name})
	r.exchangeByName[name] = id
	return id, nil
}

// AddInstrument registers a new instrument and returns its ID.
func (r *InstrumentRegistry) AddInstrument(code string, exchangeID ExchangeID, priceTick, multiplier decimal.Decimal) (uint32, error) {
	if code == "" {
		return 0, fmt.Errorf("instrument code is empty")
	}
	if exchangeID == 0 {
		return 0, fmt.Errorf("exchange id is invalid")
	}
	if _, ok := r.Exchange(exchangeID); !ok {
		return 0, fmt.Errorf("exchange id not found: %d", exchangeID)
	}
	if id, ok := r.instrumentByCode[code]; ok {
		return id, fmt.Errorf("instrument already exists: %s", code)
	}
	id := uint32(len(r.instruments) + 1)
	r.instruments = append(r.instruments, Instrument{
		ID:         id,
		Code:       code,
		ExchangeID: exchangeID,
		PriceTick:  priceTick,
		Multiplier: multiplier,
	})
	r.instrumentByCode[code] = id
	return id, nil
}

// Exchange returns the exchange by ID.
func (r *InstrumentRegistry) Exchange(id ExchangeID) (Exchange, bool) {
	if id == 0 || int(id) > len(r.exchanges) {
		return Exchange{}, false
	}
	return r.exchanges[id-1], true
}

// Instrument returns the instrument by ID.
func (r *InstrumentRegistry) Instrument(id uint32) (Instrument, bool) {
	if id == 0 || int(id) > len(r.instruments) {
		return Instrument{}, false
	}
	return r.instruments[id-1], true
}

// InstrumentCount returns the number of instruments in the registry.
func (r *InstrumentRegistry) InstrumentCount() int {
	return len(r.instruments)
}

// InstrumentAt returns the instrument by zero-based index.
func (r *InstrumentRegistry) InstrumentAt(index int) (Instrument, bool) {
	if index < 0 || index >= len(r.instruments) {
		return Instrument{}, false
	}
	return r.instruments[index], true
}

// ExchangeIDByName returns the exchange ID for a name.
func (r *InstrumentRegistry) ExchangeIDByName(name string) (ExchangeID, bool) {
	id, ok := r.exchangeByName[name]
	return id, ok
}

// InstrumentIDByCode returns the instrument ID for a code.
func (r *InstrumentRegistry) InstrumentIDByCode(code string) (uint32, bool) {
	id, ok := r.instrumentByCode[code]
	return id, ok
}
