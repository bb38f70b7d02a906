// Package kwsearch embeds the keyword search registry in a Go program,
// backed by Valkey/Redis with JSON documents or by PostgreSQL/SQLite through gorm.
//
// Search operators map a keyword prefix such as "author:" to XPath field paths.
// The keyword service turns a comma separated search box string into a filter
// document and renders stored filters back into keywords.
//
//	client, _ := kwsearch.New(ctx, kwsearch.WithSQLite("file:kw.db"))
//	defer client.Close()
//
//	_, _ = client.Operators().Register(ctx, "author", []string{"/doc/author"})
//	filter, _ := client.Keywords().Build(ctx, "hello, author:Smith")
//
//	q, _ := client.Queries(kwsearch.User("alice")).Create(ctx, kwsearch.NewQuery{
//	    Filter: filter,
//	    Name:   "smith",
//	})
//	kw, _ := client.Queries(kwsearch.User("alice")).Keywords(ctx, q.ID) // "hello,author:Smith"
package kwsearch
