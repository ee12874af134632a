package algo

// Result is the tagged union of algorithm outputs. Consumers dispatch
// on Kind (or type-switch on the concrete result).
type Result interface {
	Kind() Algorithm
}

// ResultSet maps each algorithm that ran to its result.
type ResultSet map[Algorithm]Result
