package textproc

// contractions maps lowercase English contractions to their expansions.
var contractions = map[string]string{
	"ain't":       "is not",
	"aren't":      "are not",
	"can't":       "cannot",
	"can't've":    "cannot have",
	"could've":    "could have",
	"couldn't":    "could not",
	"didn't":      "did not",
	"doesn't":     "does not",
	"don't":       "do not",
	"hadn't":      "had not",
	"hasn't":      "has not",
	"haven't":     "have not",
	"he'd":        "he would",
	"he'll":       "he will",
	"he's":        "he is",
	"how'd":       "how did",
	"how's":       "how is",
	"i'd":         "i would",
	"i'll":        "i will",
	"i'm":         "i am",
	"i've":        "i have",
	"isn't":       "is not",
	"it'd":        "it would",
	"it'll":       "it will",
	"it's":        "it is",
	"let's":       "let us",
	"ma'am":       "madam",
	"might've":    "might have",
	"mightn't":    "might not",
	"must've":     "must have",
	"mustn't":     "must not",
	"needn't":     "need not",
	"o'clock":     "of the clock",
	"shan't":      "shall not",
	"she'd":       "she would",
	"she'll":      "she will",
	"she's":       "she is",
	"should've":   "should have",
	"shouldn't":   "should not",
	"that'd":      "that would",
	"that's":      "that is",
	"there'd":     "there would",
	"there's":     "there is",
	"they'd":      "they would",
	"they'll":     "they will",
	"they're":     "they are",
	"they've":     "they have",
	"wasn't":      "was not",
	"we'd":        "we would",
	"we'll":       "we will",
	"we're":       "we are",
	"we've":       "we have",
	"weren't":     "were not",
	"what'll":     "what will",
	"what're":     "what are",
	"what's":      "what is",
	"what've":     "what have",
	"when's":      "when is",
	"where'd":     "where did",
	"where's":     "where is",
	"who'll":      "who will",
	"who's":       "who is",
	"who've":      "who have",
	"why's":       "why is",
	"won't":       "will not",
	"won't've":    "will not have",
	"would've":    "would have",
	"wouldn't":    "would not",
	"y'all":       "you all",
	"you'd":       "you would",
	"you'll":      "you will",
	"you're":      "you are",
	"you've":      "you have",
	"couldn't've": "could not have",
}

// misspellings maps frequent English misspellings to their correction. This is a lookup table,
// not a general spell checker: words not listed are left alone.
var misspellings = map[string]string{
	"accomodate":   "accommodate",
	"acheive":      "achieve",
	"adress":       "address",
	"alot":         "a lot",
	"beleive":      "believe",
	"belive":       "believe",
	"calender":     "calendar",
	"comming":      "coming",
	"definately":   "definitely",
	"dissapoint":   "disappoint",
	"dissapointed": "disappointed",
	"embarass":     "embarrass",
	"enviroment":   "environment",
	"excelent":     "excellent",
	"finaly":       "finally",
	"goverment":    "government",
	"grammer":      "grammar",
	"happend":      "happened",
	"hte":          "the",
	"immediatly":   "immediately",
	"independant":  "independent",
	"occured":      "occurred",
	"occurence":    "occurrence",
	"prefered":     "preferred",
	"publically":   "publicly",
	"realy":        "really",
	"recieve":      "receive",
	"recieved":     "received",
	"recomend":     "recommend",
	"seperate":     "separate",
	"succesful":    "successful",
	"teh":          "the",
	"tommorow":     "tomorrow",
	"tomorow":      "tomorrow",
	"truely":       "truly",
	"untill":       "until",
	"wierd":        "weird",
	"writting":     "writing",
}

// stopwords is the English stopword list used by the remove_stopwords step.
var stopwords = makeSet(
	"a", "about", "above", "after", "again", "against", "all", "am", "an", "and", "any", "are",
	"as", "at", "be", "because", "been", "before", "being", "below", "between", "both", "but",
	"by", "can", "did", "do", "does", "doing", "down", "during", "each", "few", "for", "from",
	"further", "had", "has", "have", "having", "he", "her", "here", "hers", "herself", "him",
	"himself", "his", "how", "i", "if", "in", "into", "is", "it", "its", "itself", "just", "me",
	"more", "most", "my", "myself", "no", "nor", "not", "now", "of", "off", "on", "once", "only",
	"or", "other", "our", "ours", "ourselves", "out", "over", "own", "same", "she", "should",
	"so", "some", "such", "than", "that", "the", "their", "theirs", "them", "themselves", "then",
	"there", "these", "they", "this", "those", "through", "to", "too", "under", "until", "up",
	"very", "was", "we", "were", "what", "when", "where", "which", "while", "who", "whom", "why",
	"will", "with", "you", "your", "yours", "yourself", "yourselves",
)

func makeSet(items ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}

// IsStopword reports whether word is on the English stopword list.
func IsStopword(word string) bool {
	_, ok := stopwords[word]
	return ok
}
