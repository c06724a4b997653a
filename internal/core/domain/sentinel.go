package domain

// SentinelToComplete marks a field the analysis could not read from the
// source material. The caseworker fills it in by hand; the pipeline never
// substitutes a guess.
const SentinelToComplete = "DO UZUPEŁNIENIA"
