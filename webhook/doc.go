// Package webhook delivers H&R check summaries to an HTTP endpoint.
//
// Two payload layouts are supported: a flat JSON object for generic
// receivers and a Discord compatible embed.
//
//	client, err := webhook.NewClient(
//		"https://discord.com/api/webhooks/...",
//		logger,
//		webhook.WithFormat(webhook.FormatDiscord),
//		webhook.WithTimeout(10*time.Second),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Client satisfies checker.Notifier.
package webhook
