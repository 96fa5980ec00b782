// Package clientcli provides a client library for dirserve servers.
//
// The client speaks the same HTTP surface a browser does: directory listings
// are parsed out of the HTML pages, downloads are plain GETs, and uploads
// discover the upload form on the target directory's listing and post a
// streamed multipart body to its action. Servers protected by a credential
// are accessed with HTTP Basic authentication.
//
// # Basic Usage
//
//	client, err := clientcli.New(&clientcli.Config{
//		Endpoint: "http://localhost:8080",
//		Username: "alice",
//		Password: "secret",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath: "./report.pdf",
//		RemoteDir: "/docs",
//	})
//
// # Profile Configuration
//
// Profiles live in ~/.dirserve/config.yaml:
//
//	file, err := clientcli.LoadProfileFile(clientcli.DefaultProfilePath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := file.Lookup("nas")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Environment variables override the profile.
//	cfg := profile.Config().Overlay(clientcli.EnvConfig())
//	client, err := clientcli.New(cfg)
//
// # Output Formatting
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatList(os.Stdout, listing)
package clientcli
