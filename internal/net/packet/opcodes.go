package packet

// Server → client opcodes.
const (
	S_OPCODE_INIT  byte = 0x01 // once, right after accept
	S_OPCODE_STATE byte = 0x02 // full world snapshot, every tick
)

// Client → server opcodes.
const (
	C_OPCODE_MOVE    byte = 0x10
	C_OPCODE_SKILL_Q byte = 0x11
	C_OPCODE_ATTACK  byte = 0x12
)

// ProtocolVersion is sent in INIT. Bump it whenever a record below changes
// shape.
const ProtocolVersion = 1

// OpcodeName returns a short label for logs and metrics.
func OpcodeName(op byte) string {
	switch op {
	case S_OPCODE_INIT:
		return "init"
	case S_OPCODE_STATE:
		return "state"
	case C_OPCODE_MOVE:
		return "move"
	case C_OPCODE_SKILL_Q:
		return "skill_q"
	case C_OPCODE_ATTACK:
		return "attack"
	}
	return "unknown"
}
