package bot

// commandKind enumerates the bot's command surface. Dispatch goes through
// this tag rather than raw command strings.
type commandKind int

const (
	cmdUnknown commandKind = iota
	cmdStart
	cmdHelp
	cmdChannels
	cmdSubscribe
	cmdUnsubscribe
	cmdList
	cmdFilters
	cmdAddFilter
	cmdRmFilter
	cmdRecent
)

// parseCommandKind maps a Telegram command token to its kind.
func parseCommandKind(cmd string) commandKind {
	switch cmd {
	case "start":
		return cmdStart
	case "help":
		return cmdHelp
	case "channels":
		return cmdChannels
	case "subscribe":
		return cmdSubscribe
	case "unsubscribe":
		return cmdUnsubscribe
	case "list":
		return cmdList
	case "filters":
		return cmdFilters
	case "addfilter":
		return cmdAddFilter
	case "rmfilter":
		return cmdRmFilter
	case "recent":
		return cmdRecent
	default:
		return cmdUnknown
	}
}
