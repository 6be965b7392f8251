// Package client is a Go client for the carequery HTTP API.
//
//	c, _ := client.New("http://localhost:8080", client.WithAPIKey(os.Getenv("CAREQUERY_API_KEY")))
//	res, err := c.Query(ctx, client.QueryRequest{
//	    Question: "Is metformin covered?",
//	    Domain:   "pharmacy",
//	})
//	if errors.Is(err, client.ErrQuotaExceeded) {
//	    // back off
//	}
package client
