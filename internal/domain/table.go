package domain

// TableState is the operating state of a billable table.
type TableState string

const (
	TableStateOff     TableState = "off"
	TableStatePlay    TableState = "play"
	TableStatePaused  TableState = "paused"
	TableStateStandby TableState = "standby"
)

func (s TableState) Valid() bool {
	switch s {
	case TableStateOff, TableStatePlay, TableStatePaused, TableStateStandby:
		return true
	}
	return false
}
