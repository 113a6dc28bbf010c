// Package discovery advertises and finds wsecho servers via mDNS/DNS-SD.
//
// Servers started with advertising enabled register a "_wsecho._tcp"
// service whose TXT records describe how to connect:
//
//	path=/         request path of the WebSocket endpoint
//	secure=true    whether the listener speaks TLS (wss://)
//	auth=basic     whether basic-auth credentials are required
//	version=...    server build version
//
// Clients browse for the same service type with a Scanner.
//
//	services, err := discovery.NewScanner().Scan(ctx)
//	for _, svc := range services {
//	    fmt.Println(svc.URL())
//	}
package discovery
