package crypto

// passphraseWords is the built-in list used by [GeneratePassphrase].
// Short, common, unambiguous English words.
var passphraseWords = []string{
	"acid", "acorn", "actor", "amber", "anchor", "apple", "arrow", "aspen",
	"atlas", "atom", "autumn", "badge", "bamboo", "barley", "basil", "beacon",
	"berry", "birch", "bison", "blaze", "bloom", "bolt", "border", "breeze",
	"brick", "bridge", "bronze", "brook", "butter", "cabin", "cactus", "camel",
	"candle", "canoe", "canyon", "carbon", "castle", "cedar", "chalk", "cherry",
	"cider", "cliff", "clover", "cobalt", "comet", "copper", "coral", "cotton",
	"cradle", "crane", "crater", "cricket", "crystal", "cypress", "daisy", "dawn",
	"delta", "denim", "desert", "dome", "drift", "eagle", "ember", "falcon",
	"fern", "field", "flint", "forest", "frost", "garnet", "geyser", "ginger",
	"glacier", "grove", "harbor", "hazel", "heron", "hollow", "honey", "ivory",
	"jade", "jasper", "juniper", "kelp", "lagoon", "lantern", "lark", "lava",
	"lemon", "lilac", "linen", "lotus", "lunar", "maple", "marble", "meadow",
	"mesa", "mint", "mirror", "monsoon", "moss", "mountain", "nectar", "nickel",
	"north", "oasis", "ocean", "olive", "onyx", "opal", "orbit", "orchid",
	"osprey", "otter", "panda", "pebble", "pepper", "pine", "plume", "pond",
	"poplar", "prairie", "prism", "quartz", "quill", "raven", "reef", "ridge",
	"river", "robin", "rose", "rust", "saffron", "sage", "salmon", "sand",
	"sapphire", "shadow", "shell", "sierra", "silver", "slate", "smoke", "snow",
	"solar", "sparrow", "spruce", "steel", "stone", "storm", "summit", "sunset",
	"thistle", "thunder", "tiger", "timber", "topaz", "tulip", "tundra", "valley",
	"velvet", "violet", "walnut", "wave", "willow", "winter", "wolf", "zephyr",
}
