package sipws

import (
	"fmt"
	"strings"

	"github.com/pion/sdp/v3"
)

// mediaDirection is the negotiated media flow for the audio stream.
type mediaDirection string

const (
	directionSendRecv mediaDirection = "sendrecv"
	directionSendOnly mediaDirection = "sendonly"
	directionRecvOnly mediaDirection = "recvonly"
)

// buildAudioSDP creates an audio-only session description advertising
// PCMU/PCMA plus telephone-event, with the given stream direction.
// Hold is signaled by re-offering the same session with a=sendonly.
func buildAudioSDP(addr string, port int, version uint64, dir mediaDirection) ([]byte, error) {
	formats := []string{"0", "8", "101"}

	desc := &sdp.SessionDescription{
		Origin: sdp.Origin{
			Username:       "lineboard",
			SessionID:      1,
			SessionVersion: version,
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: addr,
		},
		SessionName: "Lineboard Audio Session",
		ConnectionInformation: &sdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: "IP4",
			Address: &sdp.Address{
				Address: addr,
			},
		},
		TimeDescriptions: []sdp.TimeDescription{
			{
				Timing: sdp.Timing{
					StartTime: 0,
					StopTime:  0,
				},
			},
		},
		MediaDescriptions: []*sdp.MediaDescription{
			{
				MediaName: sdp.MediaName{
					Media:   "audio",
					Port:    sdp.RangedPort{Value: port},
					Protos:  []string{"RTP", "AVP"},
					Formats: formats,
				},
				Attributes: audioAttributes(formats, dir),
			},
		},
	}

	body, err := desc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal SDP: %w", err)
	}
	return body, nil
}

// audioAttributes returns rtpmap/fmtp/ptime attributes plus the stream
// direction for the audio media section.
func audioAttributes(formats []string, dir mediaDirection) []sdp.Attribute {
	rtpmapMap := map[string]string{
		"0":   "PCMU/8000",
		"8":   "PCMA/8000",
		"101": "telephone-event/8000",
	}

	attrs := []sdp.Attribute{}
	for _, format := range formats {
		if rtpmap, ok := rtpmapMap[format]; ok {
			attrs = append(attrs, sdp.Attribute{
				Key:   "rtpmap",
				Value: format + " " + rtpmap,
			})
		}
	}
	for _, format := range formats {
		if format == "101" {
			attrs = append(attrs, sdp.Attribute{
				Key:   "fmtp",
				Value: "101 0-15",
			})
		}
	}

	attrs = append(attrs, sdp.Attribute{
		Key:   "ptime",
		Value: "20",
	})
	attrs = append(attrs, sdp.Attribute{
		Key: string(dir),
	})

	return attrs
}

// remoteDirection inspects a peer's SDP and reports the stream direction
// it declared. Offers without an explicit direction default to sendrecv.
func remoteDirection(body []byte) mediaDirection {
	desc := &sdp.SessionDescription{}
	if err := desc.Unmarshal(body); err != nil {
		return directionSendRecv
	}
	for _, md := range desc.MediaDescriptions {
		if !strings.EqualFold(md.MediaName.Media, "audio") {
			continue
		}
		for _, attr := range md.Attributes {
			switch mediaDirection(attr.Key) {
			case directionSendOnly, directionRecvOnly, directionSendRecv:
				return mediaDirection(attr.Key)
			}
		}
	}
	return directionSendRecv
}
