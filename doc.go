/*
Package cfddns points existing Cloudflare A records at the caller's current
public IPv4 address.

Usage starts with [LoadConfig] and [New],
which returns a Client configured for one zone and a list of subdomains.
[Client.Run] performs a single synchronous update pass;
scheduling repeat runs is left to cron or a systemd timer.
*/
package cfddns
