package text

// PortugueseStopWords is the default stop word list
var PortugueseStopWords = []string{
	"a", "à", "ao", "aos", "aquela", "aquelas", "aquele", "aqueles", "aquilo",
	"as", "às", "até", "com", "como", "da", "das", "de", "dela", "delas",
	"dele", "deles", "depois", "do", "dos", "e", "é", "ela", "elas", "ele",
	"eles", "em", "entre", "era", "eram", "essa", "essas", "esse", "esses",
	"esta", "está", "estas", "este", "estes", "eu", "foi", "foram", "há",
	"isso", "isto", "já", "lhe", "lhes", "mais", "mas", "me", "mesmo", "meu",
	"meus", "minha", "minhas", "muito", "na", "não", "nas", "nem", "no", "nos",
	"nós", "nossa", "nossas", "nosso", "nossos", "num", "numa", "o", "os",
	"ou", "para", "pela", "pelas", "pelo", "pelos", "por", "qual", "quando",
	"que", "quem", "se", "sem", "ser", "seu", "seus", "só", "sua", "suas",
	"também", "te", "tem", "têm", "teu", "teus", "tu", "tua", "tuas", "um",
	"uma", "umas", "uns", "você", "vocês", "vos",
}

func defaultStopWords() map[string]bool {
	stopWords := make(map[string]bool, len(PortugueseStopWords))
	for _, word := range PortugueseStopWords {
		stopWords[word] = true
	}
	return stopWords
}
