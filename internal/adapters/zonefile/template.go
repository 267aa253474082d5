package zonefile

import (
	"text/template"
)

// placeholderSerial is written into new zones; the first bump replaces it with
// the date based serial of the day.
const placeholderSerial = "0000000000"

// zoneTemplate renders a new zone. The serial must stay on the line right
// after the SOA line: BumpSerial relies on that layout.
var zoneTemplate = template.Must(template.New("zone").Parse(`$TTL {{.TTL}}
@   IN  SOA ns1.{{.Zone}}. {{.Hostmaster}}.{{.Zone}}. (
            {{.Serial}}  ; Serial number
            {{printf "%-10d" .Refresh}}  ; Refresh
            {{printf "%-10d" .Retry}}  ; Retry
            {{printf "%-10d" .Expire}}  ; Expire
            {{printf "%-10d" .Minimum}}  ; Minimum TTL
        )

@   IN  NS  ns1.{{.Zone}}.
@   IN  NS  ns2.{{.Zone}}.

ns1 IN  A   {{.NS1}}
ns2 IN  A   {{.NS2}}
`))

type templateData struct {
	Zone       string
	TTL        int
	Hostmaster string
	Serial     string
	Refresh    int
	Retry      int
	Expire     int
	Minimum    int
	NS1        string
	NS2        string
}
