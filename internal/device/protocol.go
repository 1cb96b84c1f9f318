package device

// Addresses of commands sent to the device
const (
	AddrLaserTrigger = "/exo/tt/laser/trigger"
	AddrMode         = "/exo/tt/mode"
	AddrMorse        = "/exo/tt/morse"
	AddrPhotoGet     = "/exo/tt/photo/get"
	AddrPing         = "/exo/tt/ping"
	AddrVibrate      = "/exo/tt/vibr"
)

// Addresses of messages the device sends
const (
	AddrError      = "/exo/tt/error"
	AddrInfo       = "/exo/tt/info"
	AddrKeys       = "/exo/tt/keys"
	AddrLaserEvent = "/exo/tt/laser/event"
	AddrPhotoData  = "/exo/tt/photo/data"
	AddrPingReply  = "/exo/tt/ping/reply"
)

// Vibration bounds in milliseconds
const (
	MinVibrateMillis = 1
	MaxVibrateMillis = 60000
)

// photoDataArgs is the argument count of a photoresistor summary
const photoDataArgs = 7
