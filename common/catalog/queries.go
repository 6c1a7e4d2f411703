package catalog

// Existence checks. Every query takes schema as $1 and the object name as $2.
const (
	tableExistsQuery = `
SELECT EXISTS (
	SELECT 1 FROM information_schema.tables
	WHERE table_schema = $1 AND table_name = $2 AND table_type <> 'VIEW'
)`

	sequenceExistsQuery = `
SELECT EXISTS (
	SELECT 1 FROM information_schema.sequences
	WHERE sequence_schema = $1 AND sequence_name = $2
)`

	viewExistsQuery = `
SELECT EXISTS (
	SELECT 1 FROM information_schema.views
	WHERE table_schema = $1 AND table_name = $2
)`

	triggerExistsQuery = `
SELECT EXISTS (
	SELECT 1 FROM information_schema.triggers
	WHERE trigger_schema = $1 AND trigger_name = $2
)`

	indexExistsQuery = `
SELECT EXISTS (
	SELECT 1 FROM pg_indexes
	WHERE schemaname = $1 AND indexname = $2
)`

	// $2 is the full signature name(arg1,arg2,...)
	functionExistsQuery = `
SELECT EXISTS (
	SELECT 1 FROM information_schema.routines r
	JOIN pg_catalog.pg_proc p ON r.specific_name = p.proname || '_' || p.oid
	WHERE r.routine_schema = $1
		AND r.external_language = 'PLPGSQL'
		AND r.routine_name || '(' || COALESCE(array_to_string(p.proargnames, ',', '*'), '') || ')' = $2
)`
)

const schemasQuery = `SELECT schema_name FROM information_schema.schemata ORDER BY schema_name`

// Name listings. Every query takes schema as $1.
const (
	tableNamesQuery = `
SELECT DISTINCT table_name FROM information_schema.tables
WHERE table_schema = $1 AND table_type <> 'VIEW'
ORDER BY 1`

	sequenceNamesQuery = `
SELECT DISTINCT sequence_name FROM information_schema.sequences
WHERE sequence_schema = $1
ORDER BY 1`

	viewNamesQuery = `
SELECT DISTINCT table_name FROM information_schema.views
WHERE table_schema = $1
ORDER BY 1`

	triggerNamesQuery = `
SELECT DISTINCT trigger_name FROM information_schema.triggers
WHERE trigger_schema = $1
ORDER BY 1`

	indexNamesQuery = `
SELECT DISTINCT indexname FROM pg_indexes
WHERE schemaname = $1
ORDER BY 1`

	functionNamesQuery = `
SELECT DISTINCT r.routine_name || '(' || COALESCE(array_to_string(p.proargnames, ',', '*'), '') || ')'
FROM information_schema.routines r
JOIN pg_catalog.pg_proc p ON r.specific_name = p.proname || '_' || p.oid
WHERE r.routine_schema = $1 AND r.external_language = 'PLPGSQL'
ORDER BY 1`
)
