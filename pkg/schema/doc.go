// Package schema loads declarative wizard definitions from JSON or YAML
// files and turns them into wizard steps. Validation rules and formatters are
// referenced by name and resolved through a Registry so definition files stay
// plain data while hosts can still plug in custom closures.
package schema
