package contact

// builtinDirectory is the fallback directory used when the caller's own
// contacts do not name anyone. Numbers are the Indian national emergency
// lines.
var builtinDirectory = []Contact{
	{Name: "Police", Phone: "100"},
	{Name: "Fire Brigade", Phone: "101"},
	{Name: "Doctor", Phone: "102"},
	{Name: "Ambulance", Phone: "108"},
	{Name: "Emergency", Phone: "112"},
	{Name: "Women Helpline", Phone: "1091"},
}

// BuiltinDirectory returns a fresh copy of the built-in emergency directory.
func BuiltinDirectory() []Contact {
	out := make([]Contact, len(builtinDirectory))
	copy(out, builtinDirectory)
	return out
}
