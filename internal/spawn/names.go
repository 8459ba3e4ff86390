package spawn

// botNames are plain human names. Bots must not be recognizable by
// their display name, so nothing here hints at being synthetic.
var botNames = []string{
	"Avery", "Sam", "Riley", "Jordan", "Casey",
	"Morgan", "Quinn", "Taylor", "Rowan", "Jamie",
	"Alex", "Drew", "Reese", "Emerson", "Skyler",
}
