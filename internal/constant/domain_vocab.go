package constant

// Vocabulary tables for the securities-exam domain. Topic validation,
// chunk tagging, query expansion and explanation scoring all read from
// these; keeping them in one place keeps the packages from drifting
// apart on what counts as "in domain".

// KnownSubjects are the curated exam subject terms a topic can match
// directly (after normalization).
var KnownSubjects = []string{
	"bonds",
	"stocks",
	"equities",
	"investment trusts",
	"derivatives",
	"futures",
	"options",
	"margin trading",
	"securities regulation",
	"financial products",
	"taxation",
	"economics",
	"corporate finance",
	"settlement",
	"disclosure",
	"compliance",
	"interest rates",
	"yield",
	"dividends",
	"portfolio management",
	"market analysis",
	"underwriting",
	"public offering",
	"investor protection",
}

// SynonymTable maps a subject term to the alternative phrasings used for
// query expansion and fuzzy topic matching.
var SynonymTable = map[string][]string{
	"bonds":                 {"fixed income", "debt securities", "debentures"},
	"stocks":                {"equities", "shares", "common stock"},
	"investment trusts":     {"mutual funds", "investment funds", "unit trusts"},
	"derivatives":           {"futures", "options", "swaps"},
	"margin trading":        {"credit transactions", "leveraged trading"},
	"securities regulation": {"securities law", "compliance rules", "financial regulation"},
	"yield":                 {"return", "coupon rate", "interest income"},
	"settlement":            {"clearing", "delivery"},
	"taxation":              {"tax treatment", "capital gains tax"},
	"disclosure":            {"reporting requirements", "prospectus"},
	"underwriting":          {"securities issuance", "primary offering"},
	"dividends":             {"distributions", "payout"},
}

// AnchorPhrases are fixed in-domain reference sentences. Topic
// validation falls back to embedding similarity against these when a
// topic matches no known subject.
var AnchorPhrases = []string{
	"bond pricing, yields and maturity",
	"stock market trading and shareholder rights",
	"structure and fees of investment trusts",
	"derivatives such as futures, options and swaps",
	"margin transactions and collateral requirements",
	"securities regulation and investor protection",
	"taxation of financial products and capital gains",
	"settlement, clearing and custody of securities",
	"corporate disclosure and prospectus requirements",
	"economic indicators and interest rate policy",
}

// TagVocabulary is the fixed set of domain terms scanned for when
// tagging chunks.
var TagVocabulary = []string{
	"bond", "coupon", "maturity", "yield", "duration", "issuer", "principal",
	"stock", "share", "equity", "dividend", "shareholder", "ipo",
	"trust", "fund", "nav", "distribution",
	"derivative", "futures", "option", "swap", "underlying", "premium",
	"margin", "collateral", "leverage",
	"regulation", "compliance", "disclosure", "prospectus", "license",
	"settlement", "clearing", "custody",
	"tax", "withholding", "capital gain",
	"interest", "market", "portfolio", "risk", "underwriting",
}

// AdvancedCues and BasicCues are the lexical signals used to infer a
// chunk's complexity tag. Neither matching means intermediate.
var AdvancedCues = []string{
	"duration", "convexity", "arbitrage", "hedging", "volatility",
	"covariance", "black-scholes", "swaption", "value at risk",
	"stochastic", "forward rate",
}

var BasicCues = []string{
	"definition", "introduction", "overview", "basics", "what is",
	"in simple terms", "for example", "fundamental",
}

// TopicDomainTerms maps a topic keyword to the terms a good explanation
// about that topic is expected to mention.
var TopicDomainTerms = map[string][]string{
	"bond":       {"yield", "coupon", "maturity", "interest", "issuer", "principal", "par value"},
	"stock":      {"share", "dividend", "equity", "shareholder", "market price", "voting"},
	"equity":     {"share", "dividend", "shareholder", "capital", "ownership"},
	"trust":      {"fund", "nav", "distribution", "management fee", "beneficiary", "trustee"},
	"fund":       {"nav", "distribution", "portfolio", "management fee"},
	"derivative": {"futures", "option", "underlying", "hedge", "premium", "contract"},
	"option":     {"premium", "strike", "expiration", "call", "put", "underlying"},
	"futures":    {"contract", "underlying", "margin", "delivery", "hedge"},
	"margin":     {"collateral", "leverage", "maintenance", "position", "deposit"},
	"regulation": {"disclosure", "license", "investor protection", "prohibited", "registration"},
	"tax":        {"capital gain", "withholding", "deduction", "income", "exemption"},
	"yield":      {"coupon", "maturity", "price", "interest", "return"},
	"settlement": {"clearing", "delivery", "custody", "transfer"},
}

// LogicalConnectives are the reasoning markers the explanation quality
// heuristic looks for.
var LogicalConnectives = []string{
	"because", "therefore", "thus", "since", "consequently",
	"as a result", "this means", "due to", "hence", "which is why",
	"in other words", "for example", "in contrast", "accordingly",
}

// StopWords are excluded during keyword extraction.
var StopWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "in": true,
	"on": true, "for": true, "and": true, "or": true, "to": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"what": true, "how": true, "why": true, "when": true, "which": true,
	"does": true, "do": true, "did": true, "about": true, "with": true,
	"this": true, "that": true, "these": true, "those": true, "it": true,
	"as": true, "by": true, "at": true, "from": true, "can": true,
	"will": true, "would": true, "should": true, "their": true, "its": true,
	"into": true, "than": true, "then": true, "such": true, "also": true,
	"between": true, "each": true, "other": true, "more": true, "most": true,
}
