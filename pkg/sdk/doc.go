// Package sdk is a typed HTTP client for a groundline server.
//
// It mirrors the service's wire types and error envelope; all retrieval
// semantics live server-side. For embedding the pipeline in process
// without a server, use the root package instead.
//
//	client, _ := sdk.New("http://localhost:8080", sdk.WithAPIKey(key))
//
//	_, _ = client.PublishCorpus(ctx, records)
//
//	answer, err := client.Ask(ctx, "pneumonia treatment", sdk.Caller{
//	    Region:       "us-east",
//	    PHIClearance: true,
//	})
package sdk
