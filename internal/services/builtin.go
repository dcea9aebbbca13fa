package services

// builtins holds the common IANA assignments a sweep is likely to hit.
// Names follow /etc/services conventions so file overrides line up.
var builtins = []Service{
	{Name: "ftp-data", Port: 20, Protocol: "tcp", Description: "File Transfer (data)"},
	{Name: "ftp", Port: 21, Protocol: "tcp", Description: "File Transfer (control)"},
	{Name: "ssh", Port: 22, Protocol: "tcp", Description: "Secure Shell"},
	{Name: "telnet", Port: 23, Protocol: "tcp", Description: "Telnet"},
	{Name: "smtp", Port: 25, Protocol: "tcp", Description: "Simple Mail Transfer"},
	{Name: "domain", Port: 53, Protocol: "tcp", Description: "Domain Name Server"},
	{Name: "domain", Port: 53, Protocol: "udp", Description: "Domain Name Server"},
	{Name: "http", Port: 80, Protocol: "tcp", Description: "World Wide Web HTTP"},
	{Name: "kerberos", Port: 88, Protocol: "tcp", Description: "Kerberos authentication"},
	{Name: "pop3", Port: 110, Protocol: "tcp", Description: "Post Office Protocol v3"},
	{Name: "sunrpc", Port: 111, Protocol: "tcp", Description: "SUN Remote Procedure Call"},
	{Name: "ntp", Port: 123, Protocol: "udp", Description: "Network Time Protocol"},
	{Name: "msrpc", Port: 135, Protocol: "tcp", Description: "Microsoft RPC endpoint mapper"},
	{Name: "netbios-ns", Port: 137, Protocol: "udp", Description: "NetBIOS Name Service"},
	{Name: "netbios-ssn", Port: 139, Protocol: "tcp", Description: "NetBIOS Session Service"},
	{Name: "imap", Port: 143, Protocol: "tcp", Description: "Internet Message Access Protocol"},
	{Name: "snmp", Port: 161, Protocol: "udp", Description: "Simple Network Management Protocol"},
	{Name: "ldap", Port: 389, Protocol: "tcp", Description: "Lightweight Directory Access Protocol"},
	{Name: "https", Port: 443, Protocol: "tcp", Description: "HTTP over TLS"},
	{Name: "microsoft-ds", Port: 445, Protocol: "tcp", Description: "Microsoft Directory Services (SMB)"},
	{Name: "smtps", Port: 465, Protocol: "tcp", Description: "SMTP over TLS"},
	{Name: "syslog", Port: 514, Protocol: "udp", Description: "Syslog"},
	{Name: "submission", Port: 587, Protocol: "tcp", Description: "Mail message submission"},
	{Name: "ldaps", Port: 636, Protocol: "tcp", Description: "LDAP over TLS"},
	{Name: "rsync", Port: 873, Protocol: "tcp", Description: "rsync file synchronization"},
	{Name: "imaps", Port: 993, Protocol: "tcp", Description: "IMAP over TLS"},
	{Name: "pop3s", Port: 995, Protocol: "tcp", Description: "POP3 over TLS"},
	{Name: "ms-sql-s", Port: 1433, Protocol: "tcp", Description: "Microsoft SQL Server"},
	{Name: "mysql", Port: 3306, Protocol: "tcp", Description: "MySQL database"},
	{Name: "ms-wbt-server", Port: 3389, Protocol: "tcp", Description: "Microsoft Remote Desktop"},
	{Name: "postgresql", Port: 5432, Protocol: "tcp", Description: "PostgreSQL database"},
	{Name: "amqp", Port: 5672, Protocol: "tcp", Description: "Advanced Message Queuing Protocol"},
	{Name: "vnc", Port: 5900, Protocol: "tcp", Description: "Virtual Network Computing"},
	{Name: "redis", Port: 6379, Protocol: "tcp", Description: "Redis key-value store"},
	{Name: "http-alt", Port: 8080, Protocol: "tcp", Description: "HTTP alternate"},
	{Name: "https-alt", Port: 8443, Protocol: "tcp", Description: "HTTPS alternate"},
	{Name: "wap-wsp", Port: 9200, Protocol: "tcp", Description: "Elasticsearch HTTP"},
	{Name: "git", Port: 9418, Protocol: "tcp", Description: "Git pack transfer"},
	{Name: "memcache", Port: 11211, Protocol: "tcp", Description: "Memcached"},
	{Name: "mongodb", Port: 27017, Protocol: "tcp", Description: "MongoDB database"},
}
