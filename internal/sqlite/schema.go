package sqlite

// Schema DDL. The database is rebuilt from the JSONL files on every attach,
// so the schema carries no migrations.
const (
	createItems = `CREATE TABLE items (
    id TEXT PRIMARY KEY,
    day INTEGER NOT NULL CHECK (day >= 1),
    sort_order INTEGER NOT NULL,
    payload TEXT NOT NULL
);`

	createExpenses = `CREATE TABLE expenses (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    date TEXT NOT NULL,
    payment_method TEXT NOT NULL,
    amount TEXT NOT NULL,
    currency TEXT NOT NULL,
    tax_refund TEXT NOT NULL
);`

	createChecklist = `CREATE TABLE checklist (
    list TEXT NOT NULL CHECK (list IN ('todo', 'packing')),
    position INTEGER NOT NULL,
    id TEXT NOT NULL,
    text TEXT NOT NULL,
    completed INTEGER NOT NULL,
    category TEXT NOT NULL,
    PRIMARY KEY (list, id)
);`
)

// Index DDL.
const (
	// idxItemsDayOrder rejects two items holding the same position in a day.
	idxItemsDayOrder = `CREATE UNIQUE INDEX idx_items_day_order ON items(day, sort_order);`
	idxExpensesDate  = `CREATE INDEX idx_expenses_date ON expenses(date);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createItems,
	createExpenses,
	createChecklist,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxItemsDayOrder,
	idxExpensesDate,
}
