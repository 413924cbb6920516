package render

import (
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	placementServiceName   = "faceoverlay.v1.PlacementService"
	streamPlacementsMethod = "/" + placementServiceName + "/StreamPlacements"
)

// PlacementServer is the server API for the placement stream. Messages
// are google.protobuf.Struct so no generated code is needed on either
// side.
type PlacementServer interface {
	StreamPlacements(req *structpb.Struct, stream grpc.ServerStream) error
}

// RegisterPlacementServer registers srv on s.
func RegisterPlacementServer(s grpc.ServiceRegistrar, srv PlacementServer) {
	s.RegisterService(&placementServiceDesc, srv)
}

func streamPlacementsHandler(srv interface{}, stream grpc.ServerStream) error {
	req := new(structpb.Struct)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(PlacementServer).StreamPlacements(req, stream)
}

var placementServiceDesc = grpc.ServiceDesc{
	ServiceName: placementServiceName,
	HandlerType: (*PlacementServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamPlacements",
			Handler:       streamPlacementsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "faceoverlay/v1/placement.proto",
}
