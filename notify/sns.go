package notify

import (
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
)

// SNS publishes messages to an AWS SNS topic.
type SNS struct {
	topicArn string
	svc      snsiface.SNSAPI
}

func NewSNS(topicArn string) *SNS {
	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	return &SNS{topicArn: topicArn, svc: sns.New(sess)}
}

func (s *SNS) Send(subject, message string) error {
	if s.topicArn == "" {
		return nil
	}
	_, err := s.svc.Publish(&sns.PublishInput{
		Subject:  &subject,
		Message:  &message,
		TopicArn: &s.topicArn,
	})
	return err
}
