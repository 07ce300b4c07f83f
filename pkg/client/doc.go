// Package client is the CleanChain Go SDK.
//
// It covers the full clearance workflow: authenticating as a submitter,
// anchoring trade documents, and verifying fingerprints presented at the
// border.
//
// # Anchoring a declaration
//
//	c, err := client.New("https://clearance.example.com",
//	    client.WithCredentials("acme-exports", os.Getenv("CLEANCHAIN_SECRET")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := c.Submit(ctx, invoicePDF, 9500)
//	fmt.Println(res.Fingerprint, res.Channel) // e.g. "3a9f..." GREEN
//
// A token is exchanged automatically and refreshed 60 seconds before
// expiry. Pass a pre-obtained token with WithToken instead when the
// secret is not available locally.
//
// # Verifying at the border
//
// Verification is public and needs no credentials:
//
//	c, _ := client.New("https://clearance.example.com")
//	res, err := c.Verify(ctx, presentedFingerprint, "")
//	switch res.Outcome {
//	case "VERIFIED":
//	    fmt.Println("channel:", res.Channel)
//	case "NOT_FOUND":
//	    fmt.Println("document was never anchored")
//	}
//
// Add result caching with WithCacheTTL to avoid repeated lookups for the
// same shipment; only VERIFIED outcomes are cached.
//
// # Retrieving the original document
//
// FetchContent downloads the anchored bytes and re-checks their hash
// locally, so a compromised gateway cannot serve substituted content:
//
//	data, err := c.FetchContent(ctx, res.Record.Fingerprint)
package client
