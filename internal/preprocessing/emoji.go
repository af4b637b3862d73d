package preprocessing

// emojiLexicon maps the emoji most common in Spanish-language comments to a
// word that survives the letter filter. Order is fixed so replacement is
// deterministic.
var emojiLexicon = []struct {
	glyph string
	word  string
}{
	{"❤️", "corazon"},
	{"😂", "risa"},
	{"😍", "amor"},
	{"😢", "tristeza"},
	{"🙏", "gracias"},
	{"😊", "sonrisa"},
	{"👍", "pulgar_arriba"},
	{"😭", "llanto"},
	{"😎", "cool"},
	{"😉", "guiño"},
}

var emojiRanges = [][2]rune{
	{0x1F600, 0x1F64F}, // emoticons
	{0x1F300, 0x1F5FF}, // symbols & pictographs
	{0x1F680, 0x1F6FF}, // transport & map
	{0x1F1E0, 0x1F1FF}, // flags
	{0x2700, 0x27BF},   // dingbats
	{0x1F900, 0x1F9FF}, // supplemental symbols & pictographs
	{0x2600, 0x26FF},   // misc symbols
}

func isEmoji(r rune) bool {
	for _, rg := range emojiRanges {
		if r >= rg[0] && r <= rg[1] {
			return true
		}
	}
	return false
}
