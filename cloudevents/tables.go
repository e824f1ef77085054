package cloudevents

// Internal (routing-message) header names are stable across all spec
// versions; only the wire form changes. This is the "CamelCloudEvent*"
// family referenced by the override precedence layer in the producer.
const (
	idVersion         = "CamelCloudEventSpecVersion"
	idType            = "CamelCloudEventType"
	idID              = "CamelCloudEventID"
	idSource          = "CamelCloudEventSource"
	idTime            = "CamelCloudEventTime"
	idDataContentType = "CamelCloudEventContentType"
	idSubject         = "CamelCloudEventSubject"
)

func init() {
	table[V01] = map[Attribute]names{
		AttrVersion:         {http: "CE-CloudEventsVersion", id: idVersion},
		AttrType:            {http: "CE-EventType", id: idType},
		AttrID:              {http: "CE-EventID", id: idID},
		AttrSource:          {http: "CE-Source", id: idSource},
		AttrTime:            {http: "CE-EventTime", id: idTime},
		AttrDataContentType: {http: httpContentType, id: idDataContentType},
		AttrSubject:         {http: "CE-Subject", id: idSubject},
	}
	structuredKeys[V01] = map[Attribute]string{
		AttrVersion:         "cloudEventsVersion",
		AttrType:            "eventType",
		AttrID:              "eventID",
		AttrSource:          "source",
		AttrTime:            "eventTime",
		AttrDataContentType: "contentType",
		AttrSubject:         "subject",
	}

	for _, v := range []Version{V02, V03} {
		table[v] = map[Attribute]names{
			AttrVersion:         {http: "ce-specversion", id: idVersion},
			AttrType:            {http: "ce-type", id: idType},
			AttrID:              {http: "ce-id", id: idID},
			AttrSource:          {http: "ce-source", id: idSource},
			AttrTime:            {http: "ce-time", id: idTime},
			AttrDataContentType: {http: httpContentType, id: idDataContentType},
			AttrSubject:         {http: "ce-subject", id: idSubject},
		}
	}
	// 0.2 and 0.3 differ only in the structured-mode content type key name.
	structuredKeys[V02] = map[Attribute]string{
		AttrVersion:         "specversion",
		AttrType:            "type",
		AttrID:              "id",
		AttrSource:          "source",
		AttrTime:            "time",
		AttrDataContentType: "contenttype",
		AttrSubject:         "subject",
	}
	structuredKeys[V03] = map[Attribute]string{
		AttrVersion:         "specversion",
		AttrType:            "type",
		AttrID:              "id",
		AttrSource:          "source",
		AttrTime:            "time",
		AttrDataContentType: "datacontenttype",
		AttrSubject:         "subject",
	}
}
