/*
Package graph holds the immutable, indexed representation of an authored conversation flow.

A graph is built once from an external document (JSON or YAML, produced by a graph editor),
validated, and then only read. Lookups are indexed by node id and by edge source so that
resolution costs O(degree) regardless of graph size.

	g, err := graph.LoadFile("flows/support.yaml")
	if err != nil {
		var fe *graph.FormatError
		if errors.As(err, &fe) {
			for _, issue := range fe.Issues {
				fmt.Println(issue)
			}
		}
		return err
	}
	next := g.Next(g.Start().ID, nil)
*/
package graph
